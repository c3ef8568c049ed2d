package policy

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/capsentry/capsentry/scope"
)

func TestIsHardAbortDistinguishesUnknownPatternShape(t *testing.T) {
	unknownShape := fmt.Errorf("extract: pkg/index.js: %w", &scope.ErrUnknownPatternShape{NodeType: "weird_pattern"})
	require.True(t, isHardAbort(unknownShape))

	parseFailure := errors.New("ast: parse pkg/index.js: empty tree")
	require.False(t, isHardAbort(parseFailure))
}
