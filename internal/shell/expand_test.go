package shell_test

import (
	"context"
	"testing"

	"github.com/agfs-project/agfs-shell/internal/shell"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExpandWord_SimpleVariable(t *testing.T) {
	s, _ := setupTestSession(t)
	s.Env["NAME"] = "world"

	out, err := shell.ExpandWord(context.Background(), s, "hello $NAME")
	require.NoError(t, err)
	assert.Equal(t, "hello world", out)
}

func TestExpandWord_BracedVariable(t *testing.T) {
	s, _ := setupTestSession(t)
	s.Env["NAME"] = "world"

	out, err := shell.ExpandWord(context.Background(), s, "hello ${NAME}!")
	require.NoError(t, err)
	assert.Equal(t, "hello world!", out)
}

func TestExpandWord_UnsetVariableExpandsEmpty(t *testing.T) {
	s, _ := setupTestSession(t)

	out, err := shell.ExpandWord(context.Background(), s, "[$MISSING]")
	require.NoError(t, err)
	assert.Equal(t, "[]", out)
}

func TestExpandWord_ExitCode(t *testing.T) {
	s, _ := setupTestSession(t)
	s.SetExitCode(1)

	out, err := shell.ExpandWord(context.Background(), s, "status=$?")
	require.NoError(t, err)
	assert.Equal(t, "status=1", out)
}

func TestExpandWord_CommandSubstitutionParens(t *testing.T) {
	s, _ := setupTestSession(t)

	out, err := shell.ExpandWord(context.Background(), s, "value=$(echo hi)")
	require.NoError(t, err)
	assert.Equal(t, "value=hi", out)
}

func TestExpandWord_CommandSubstitutionBackticks(t *testing.T) {
	s, _ := setupTestSession(t)

	out, err := shell.ExpandWord(context.Background(), s, "value=`echo hi`")
	require.NoError(t, err)
	assert.Equal(t, "value=hi", out)
}

func TestExpandWord_CommandSubstitutionTrimsTrailingNewline(t *testing.T) {
	s, _ := setupTestSession(t)

	out, err := shell.ExpandWord(context.Background(), s, "$(echo foo)")
	require.NoError(t, err)
	assert.Equal(t, "foo", out)
}

func TestExpandVariables_UsedByForLoopItemLists(t *testing.T) {
	s, _ := setupTestSession(t)
	s.Env["LIST"] = "a b c"

	out := shell.ExpandVariables(s, "prefix-$LIST")
	assert.Equal(t, "prefix-a b c", out)
}

func TestExpandVariables_NoCommandSubstitution(t *testing.T) {
	s, _ := setupTestSession(t)

	out := shell.ExpandVariables(s, "$(echo hi)")
	assert.Equal(t, "$(echo hi)", out)
}
