package dto

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSearchRequestValidate(t *testing.T) {
	tests := []struct {
		name    string
		req     SearchRequest
		wantErr bool
	}{
		{name: "minimal valid", req: SearchRequest{Query: "hello"}},
		{name: "full valid", req: SearchRequest{Query: "hello", Mode: "hybrid", MatchCount: 10, Threshold: 0.5}},
		{name: "empty query", req: SearchRequest{Query: ""}, wantErr: true},
		{name: "bad mode", req: SearchRequest{Query: "q", Mode: "fuzzy"}, wantErr: true},
		{name: "match count too high", req: SearchRequest{Query: "q", MatchCount: 1000}, wantErr: true},
		{name: "threshold above one", req: SearchRequest{Query: "q", Threshold: 1.5}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.req.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}
