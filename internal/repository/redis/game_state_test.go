package redis

import "testing"

func TestGameIDFromTimerKey(t *testing.T) {
	tests := []struct {
		key    string
		wantID string
		wantOK bool
	}{
		{timerKey("abc"), "abc", true},
		{"campaign:0b6c2f1e-7d7e-4a55-9b8a-1c2d3e4f5a6b:timer", "0b6c2f1e-7d7e-4a55-9b8a-1c2d3e4f5a6b", true},
		{stateKey("abc"), "", false},
		{"campaign::timer", "", false},
		{"campaign:a:b:timer", "", false},
		{"game:abc:timer", "", false},
		{"", "", false},
	}
	for _, tt := range tests {
		id, ok := GameIDFromTimerKey(tt.key)
		if id != tt.wantID || ok != tt.wantOK {
			t.Errorf("GameIDFromTimerKey(%q) = %q, %v; want %q, %v", tt.key, id, ok, tt.wantID, tt.wantOK)
		}
	}
}
