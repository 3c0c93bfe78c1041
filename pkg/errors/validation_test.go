package errors

import (
	"testing"
)

func TestValidateBlockSize(t *testing.T) {
	tests := []struct {
		input   int
		wantErr bool
	}{
		{1, false},
		{16, false},
		{MaxBlockSize, false},
		{0, true},
		{-8, true},
		{MaxBlockSize + 1, true},
	}

	for _, tt := range tests {
		err := ValidateBlockSize(tt.input)
		if (err != nil) != tt.wantErr {
			t.Errorf("ValidateBlockSize(%d) error = %v, wantErr %v", tt.input, err, tt.wantErr)
		}
		if err != nil && !Is(err, ErrCodeInvalidBlockSize) {
			t.Errorf("ValidateBlockSize(%d) code = %v, want %v", tt.input, GetCode(err), ErrCodeInvalidBlockSize)
		}
	}
}

func TestValidateThreshold(t *testing.T) {
	for _, v := range []int{0, 1, 128, 255} {
		if err := ValidateThreshold(v); err != nil {
			t.Errorf("ValidateThreshold(%d) unexpected error: %v", v, err)
		}
	}
	for _, v := range []int{-1, 256} {
		if err := ValidateThreshold(v); !Is(err, ErrCodeInvalidThreshold) {
			t.Errorf("ValidateThreshold(%d) = %v, want INVALID_THRESHOLD", v, err)
		}
	}
}

func TestValidateRasterSize(t *testing.T) {
	tests := []struct {
		w, h    int
		wantErr bool
	}{
		{0, 0, false},
		{64, 64, false},
		{MaxRasterDimension, 1, false},
		{8192, 8192, false},
		{-1, 10, true},
		{10, -1, true},
		{MaxRasterDimension + 1, 1, true},
		{MaxRasterDimension, MaxRasterDimension, true},
		{1 << 31, 1 << 31, true},
	}
	for _, tt := range tests {
		err := ValidateRasterSize(tt.w, tt.h)
		if (err != nil) != tt.wantErr {
			t.Errorf("ValidateRasterSize(%d, %d) error = %v, wantErr %v", tt.w, tt.h, err, tt.wantErr)
		}
		if err != nil && !Is(err, ErrCodeInvalidInput) {
			t.Errorf("ValidateRasterSize(%d, %d) code = %v, want %v", tt.w, tt.h, GetCode(err), ErrCodeInvalidInput)
		}
	}
}

func TestValidateCandidates(t *testing.T) {
	tests := []struct {
		name    string
		input   []int
		wantErr bool
	}{
		{"defaults", []int{8, 16, 24, 32}, false},
		{"single", []int{16}, false},
		{"empty", nil, true},
		{"zero", []int{8, 0}, true},
		{"duplicate", []int{8, 16, 8}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateCandidates(tt.input)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateCandidates(%v) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
		})
	}
}

func TestValidateBlobName(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr bool
	}{
		{"simple", "20260101_ab12_image.png", false},
		{"nested", "sessions/abc/editable.png", false},

		{"empty", "", true},
		{"too long", string(make([]byte, 300)), true},
		{"absolute", "/etc/passwd", true},
		{"path traversal", "a/../b", true},
		{"double slash", "a//b", true},
		{"backslash", "a\\b", true},
		{"null byte", "a\x00b", true},
		{"newline", "a\nb", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateBlobName(tt.input)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateBlobName(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
		})
	}
}

func TestValidateURL(t *testing.T) {
	tests := []struct {
		input   string
		wantErr bool
	}{
		{"https://example.com/img.png", false},
		{"http://localhost:8080/blobs/a.png", false},
		{"", true},
		{"ftp://example.com/a", true},
		{"file:///etc/passwd", true},
	}

	for _, tt := range tests {
		if err := ValidateURL(tt.input); (err != nil) != tt.wantErr {
			t.Errorf("ValidateURL(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
		}
	}
}
