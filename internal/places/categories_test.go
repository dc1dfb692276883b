package places

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCategoryIDs(t *testing.T) {
	tests := []struct {
		name      string
		interests []string
		explicit  []string
		want      []string
	}{
		{"known interests", []string{"Museums", " history "}, nil, []string{"10027", "16020"}},
		{"unknown interest", []string{"underwater basket weaving"}, nil, []string{}},
		{"explicit ids", []string{"coffee"}, []string{"13035", " 19014 ", ""}, []string{"13035", "19014"}},
		{"nothing", nil, nil, []string{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, CategoryIDs(tt.interests, tt.explicit))
		})
	}
}
