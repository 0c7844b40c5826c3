package features

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStaticFlags(t *testing.T) {
	tests := []struct {
		name  string
		names []string
		flag  Flag
		want  bool
	}{
		{name: "default off", flag: ShareVote, want: false},
		{name: "default on", flag: CloseTagsPanelOnUpvote, want: true},
		{name: "enabled by name", names: []string{"share_vote"}, flag: ShareVote, want: true},
		{name: "disabled by prefix", names: []string{" -close_tags_panel_on_upvote "}, flag: CloseTagsPanelOnUpvote, want: false},
		{name: "blank names ignored", names: []string{"", "  "}, flag: ShareVote, want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, NewStaticFlags(tt.names...).Enabled(tt.flag))
		})
	}
}
