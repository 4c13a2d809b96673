package cli

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInsightsCmd_Use(t *testing.T) {
	assert.Equal(t, "insights", insightsCmd.Use)
}

func TestInsightsCmd_EmptyHistory(t *testing.T) {
	cleanup := setupTestServices()
	defer cleanup()

	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetArgs([]string{"insights"})
	defer func() {
		rootCmd.SetArgs(nil)
	}()

	err := rootCmd.Execute()

	require.NoError(t, err)
	assert.Contains(t, buf.String(), "Feedback records:   0")
}

func TestInsightsCmd_AfterFeedback(t *testing.T) {
	cleanup := setupTestServices()
	defer cleanup()

	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetArgs([]string{"feedback", "leather wallet", "--predicted", "4202.32", "--corrected", "4202.31"})
	require.NoError(t, rootCmd.Execute())

	buf.Reset()
	rootCmd.SetArgs([]string{"insights"})
	defer resetFeedbackFlags()

	err := rootCmd.Execute()

	require.NoError(t, err)
	out := buf.String()
	assert.Contains(t, out, "Feedback records:   1")
	assert.Contains(t, out, "Corrections:        1")
	assert.Contains(t, out, "4202 -> 4202 (1x)")
}
