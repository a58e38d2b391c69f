package cli

import (
	"bytes"
	"encoding/json"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"caisse/internal/core"
)

func setEnv(t *testing.T, openAIKey string) {
	t.Helper()
	t.Setenv("DATA_BACKEND", "memory")
	t.Setenv("OPENAI_API_KEY", openAIKey)
	t.Setenv("AMQP_URL", "")
	t.Setenv("LOG_LEVEL", "error")
}

func runCLI(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	root := NewRootCommand()
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(args)
	err := root.Execute()
	return out.String(), err
}

func TestSummaryCommand(t *testing.T) {
	setEnv(t, "")
	out, err := runCLI(t, "summary", "--month", "3", "--year", "2024")
	require.NoError(t, err)

	var summary core.FinancialSummary
	require.NoError(t, json.Unmarshal([]byte(out), &summary))
	assert.Equal(t, core.FinancialSummary{}, summary)
}

func TestSummaryCommand_RejectsHalfPeriod(t *testing.T) {
	setEnv(t, "")
	_, err := runCLI(t, "summary", "--month", "3")
	assert.Error(t, err)
}

func TestAdviceCommand_WithoutKey(t *testing.T) {
	setEnv(t, "")
	_, err := runCLI(t, "advice", "Comment", "réduire", "mes", "coûts")
	assert.ErrorIs(t, err, core.ErrAdviceUnavailable)
}

func TestAdviceCommand_UnknownUser(t *testing.T) {
	setEnv(t, "sk-test")
	_, err := runCLI(t, "advice", "--user", "99", "question")
	assert.ErrorIs(t, err, core.ErrNotFound)
}

func TestMigrateCommand(t *testing.T) {
	setEnv(t, "")
	db := filepath.Join(t.TempDir(), "caisse.db")

	out, err := runCLI(t, "migrate", "--db", db)
	require.NoError(t, err)
	assert.Equal(t, "schema version 1\n", out)

	// A second run finds nothing to do.
	out, err = runCLI(t, "migrate", "--db", db)
	require.NoError(t, err)
	assert.Equal(t, "schema version 1\n", out)
}

func TestPeriodFlags(t *testing.T) {
	p, err := periodFlags(0, 0)
	require.NoError(t, err)
	assert.Nil(t, p)

	p, err = periodFlags(12, 2023)
	require.NoError(t, err)
	assert.Equal(t, 2023, p.Year)
	assert.EqualValues(t, 12, p.Month)

	_, err = periodFlags(0, 2023)
	assert.Error(t, err)
	_, err = periodFlags(13, 2023)
	assert.ErrorIs(t, err, core.ErrInvalidMonth)
}
