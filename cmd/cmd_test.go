package cmd

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSuggest(t *testing.T) {
	verbs := []string{"ability_check", "attack", "end_turn", "exit"}
	ids := []string{"fighter", "goblin", "goblin-boss"}

	tests := []struct {
		input string
		want  []string
	}{
		{"", nil},
		{"at", []string{"attack "}},
		{"e", []string{"end_turn ", "exit "}},
		{"attack", nil},
		{"attack by: f", []string{"attack by: fighter "}},
		{"attack by: fighter to: gob", []string{"attack by: fighter to: goblin ", "attack by: fighter to: goblin-boss "}},
		{"attack by: fighter to: goblin", []string{"attack by: fighter to: goblin-boss "}},
		{"roll_dice dice: 1", nil},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.want, suggest(tt.input, verbs, ids))
		})
	}
}

func TestOptionalCampaign(t *testing.T) {
	assert.NoError(t, optionalCampaign(nil, nil))
	assert.NoError(t, optionalCampaign(nil, []string{"world", "camp"}))
	assert.Error(t, optionalCampaign(nil, []string{"world"}))
}

func TestRollCommand(t *testing.T) {
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetArgs([]string{"roll", "2d6+3", "--seed", "7"})
	require.NoError(t, rootCmd.Execute())
	assert.Contains(t, out.String(), "2d6+3: [")

	rootCmd.SetArgs([]string{"roll", "2x6"})
	assert.Error(t, rootCmd.Execute())
}

func TestVersionCommand(t *testing.T) {
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetArgs([]string{"version"})
	require.NoError(t, rootCmd.Execute())
	assert.Contains(t, out.String(), "draconic version dev")
}
