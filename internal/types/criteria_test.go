package types

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeSeniority(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"senior", "senior"},
		{"Senior", "senior"},
		{"  SR  ", "senior"},
		{"jr", "junior"},
		{"jun", "junior"},
		{"mid", "middle"},
		{"mid-level", "middle"},
		{"midlevel", "middle"},
		{"staff", "lead"},
		{"principal", "manager"},
		{"head", "manager"},
		{"", ""},
		{"   ", ""},
		{"rockstar", ""},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, NormalizeSeniority(tt.in), "input %q", tt.in)
	}
}

func TestSeniorityIndex(t *testing.T) {
	assert.Equal(t, 0, SeniorityIndex("junior"))
	assert.Equal(t, 2, SeniorityIndex("senior"))
	assert.Equal(t, 4, SeniorityIndex("manager"))
	assert.Equal(t, -1, SeniorityIndex(""))
	assert.Equal(t, -1, SeniorityIndex("sr")) // aliases are not ladder levels
}

func TestCriteria_Normalized(t *testing.T) {
	c := Criteria{
		Role:       "  Backend Engineer ",
		Seniority:  "SR",
		Domains:    []string{"FinTech", "fintech", ""},
		MustHave:   []string{"Go", "go", " Kafka "},
		NiceToHave: []string{"Docker", "GO", "kafka", "docker"},
	}

	got := c.Normalized()

	assert.Equal(t, "backend engineer", got.Role)
	assert.Equal(t, "senior", got.Seniority)
	assert.Equal(t, []string{"fintech"}, got.Domains)
	assert.Equal(t, []string{"go", "kafka"}, got.MustHave)
	// Nice-to-have drops anything already required.
	assert.Equal(t, []string{"docker"}, got.NiceToHave)
}

func TestCriteria_NormalizedEmptyListsBecomeNil(t *testing.T) {
	c := Criteria{Role: "backend", MustHave: []string{"", "  "}, NiceToHave: []string{}}
	got := c.Normalized()
	assert.Nil(t, got.MustHave)
	assert.Nil(t, got.NiceToHave)
	assert.Nil(t, got.Domains)
}

func TestCriteria_NormalizedDoesNotMutateInput(t *testing.T) {
	c := Criteria{Role: "Backend", MustHave: []string{"Go"}}
	_ = c.Normalized()
	assert.Equal(t, "Backend", c.Role)
	assert.Equal(t, []string{"Go"}, c.MustHave)
}

func TestRunStatus_Terminal(t *testing.T) {
	assert.False(t, RunStatusRunning.Terminal())
	assert.True(t, RunStatusOK.Terminal())
	assert.True(t, RunStatusSkipped.Terminal())
	assert.True(t, RunStatusFailed.Terminal())
	assert.False(t, RunStatus("bogus").Terminal())
}

func TestValidRunKind(t *testing.T) {
	assert.True(t, ValidRunKind(RunKindSeat))
	assert.True(t, ValidRunKind(RunKindProject))
	assert.True(t, ValidRunKind(RunKindPresale))
	assert.False(t, ValidRunKind(RunKind("batch")))
}
