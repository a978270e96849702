package cli

var (
	GetIndexConfig = getIndexConfig
	ReadTranscript = readTranscript
	PrintTimeline  = printTimeline
)
