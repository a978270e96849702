package config

// NewSlackForTest creates a Slack config for testing purposes
func NewSlackForTest(botToken, alertChannel string) *Slack {
	return &Slack{
		botToken:     botToken,
		alertChannel: alertChannel,
	}
}

// NewGeminiForTest creates a Gemini config for testing purposes
func NewGeminiForTest(projectID, location string) *Gemini {
	return &Gemini{
		projectID: projectID,
		location:  location,
		model:     DefaultGeminiModel,
	}
}

// NewLoggerForTest creates a Logger config for testing purposes
func NewLoggerForTest(level, format, output string) *Logger {
	return &Logger{
		level:  level,
		format: format,
		output: output,
	}
}

// NewAppConfigForTest creates an AppConfig pointing at the given file
func NewAppConfigForTest(path string) *AppConfig {
	return &AppConfig{path: path}
}

// NewAudioForTest creates an Audio config for testing purposes
func NewAudioForTest(bucket string) *Audio {
	return &Audio{bucket: bucket}
}

// NewRepositoryForTest creates a Repository config for testing purposes
func NewRepositoryForTest(backend, projectID string) *Repository {
	return &Repository{
		backend:   backend,
		projectID: projectID,
	}
}
