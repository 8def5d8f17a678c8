package config

import "testing"

func TestRetrievalConfig_SetDefaults(t *testing.T) {
	c := RetrievalConfig{}
	c.SetDefaults()

	if c.HybridAlpha != 0.5 {
		t.Errorf("HybridAlpha default = %v, want 0.5", c.HybridAlpha)
	}
	if c.NumRerankedResults != 20 {
		t.Errorf("NumRerankedResults default = %v, want 20", c.NumRerankedResults)
	}
	if c.SimScoreRangeHigh != 1.0 {
		t.Errorf("SimScoreRangeHigh default = %v, want 1.0", c.SimScoreRangeHigh)
	}
	if c.CrossEncoderRangeMax != 1.0 {
		t.Errorf("CrossEncoderRangeMax default = %v, want 1.0", c.CrossEncoderRangeMax)
	}
	if c.WorkerPoolSize != 8 {
		t.Errorf("WorkerPoolSize default = %v, want 8", c.WorkerPoolSize)
	}
}

func TestRetrievalConfig_SetDefaults_DoesNotOverrideExplicitValues(t *testing.T) {
	c := RetrievalConfig{HybridAlpha: 0.9, WorkerPoolSize: 3}
	c.SetDefaults()

	if c.HybridAlpha != 0.9 {
		t.Errorf("expected explicit HybridAlpha preserved, got %v", c.HybridAlpha)
	}
	if c.WorkerPoolSize != 3 {
		t.Errorf("expected explicit WorkerPoolSize preserved, got %v", c.WorkerPoolSize)
	}
}

func TestRetrievalConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     RetrievalConfig
		wantErr bool
	}{
		{"valid defaults", func() RetrievalConfig { c := RetrievalConfig{}; c.SetDefaults(); return c }(), false},
		{"hybrid alpha too high", RetrievalConfig{HybridAlpha: 1.5, SimScoreRangeHigh: 1, CrossEncoderRangeMax: 1}, true},
		{"hybrid alpha negative", RetrievalConfig{HybridAlpha: -0.1, SimScoreRangeHigh: 1, CrossEncoderRangeMax: 1}, true},
		{"sim score range inverted", RetrievalConfig{HybridAlpha: 0.5, SimScoreRangeLow: 2, SimScoreRangeHigh: 1, CrossEncoderRangeMax: 1}, true},
		{"cross encoder range inverted", RetrievalConfig{HybridAlpha: 0.5, SimScoreRangeHigh: 1, CrossEncoderRangeMin: 2, CrossEncoderRangeMax: 1}, true},
		{"negative worker pool size", RetrievalConfig{HybridAlpha: 0.5, SimScoreRangeHigh: 1, CrossEncoderRangeMax: 1, WorkerPoolSize: -1}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestLoggerConfig_Validate(t *testing.T) {
	tests := []struct {
		level   string
		wantErr bool
	}{
		{"", false},
		{"debug", false},
		{"info", false},
		{"warn", false},
		{"error", false},
		{"trace", true},
	}
	for _, tt := range tests {
		c := LoggerConfig{Level: tt.level}
		err := c.Validate()
		if (err != nil) != tt.wantErr {
			t.Errorf("Validate() with level %q error = %v, wantErr %v", tt.level, err, tt.wantErr)
		}
	}
}

func TestConfig_SetDefaults_InitializesNilLogger(t *testing.T) {
	c := Config{}
	c.SetDefaults()
	if c.Logger == nil {
		t.Fatal("expected SetDefaults to allocate a Logger config")
	}
	if c.Logger.Level != "info" {
		t.Errorf("Logger.Level = %q, want %q", c.Logger.Level, "info")
	}
}
