package synthesis

var (
	StripCodeFence = stripCodeFence
	BuildPrompt    = buildPrompt
)
