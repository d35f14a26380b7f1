package op

import (
	"errors"
	"testing"

	"github.com/alecthomas/assert/v2"
	"go.uber.org/multierr"
)

func TestCheckResolvedAcceptsCompleteDAG(t *testing.T) {
	a := NewVariable("a", Binary32)
	b := NewVariable("b", Binary32)
	sum := New(Addition, Binary32, a, b)
	assert.NoError(t, CheckResolved(NewStatement(NewAssign(NewSignal("s", Binary32), sum))))
}

func TestCheckResolvedReportsEveryHole(t *testing.T) {
	a := NewVariable("a", nil)
	sum := New(Addition, nil, a, NewVariable("b", Binary32))
	err := CheckResolved(sum)
	assert.Error(t, err)
	assert.Equal(t, 2, len(multierr.Errors(err)))

	var malformed *MalformedFormatError
	assert.True(t, errors.As(err, &malformed))
}

func TestCheckResolvedExemptsStatements(t *testing.T) {
	a := NewVariable("a", Binary32)
	body := NewStatement(NewAssign(NewSignal("s", Binary32), a))
	assert.NoError(t, CheckResolved(body))
}

func TestInferFormatsPropagatesThroughArithmetic(t *testing.T) {
	a := NewVariable("a", Binary64)
	b := NewVariable("b", Binary64)
	sum := New(Addition, nil, a, b)
	prod := New(Multiplication, nil, sum, b)

	assert.NoError(t, InferFormats(prod))
	assert.Equal[Format](t, Binary64, sum.Format())
	assert.Equal[Format](t, Binary64, prod.Format())
}

func TestInferFormatsLeavesMixedOperandsAlone(t *testing.T) {
	a := NewVariable("a", Binary32)
	b := NewVariable("b", Binary64)
	sum := New(Addition, nil, a, b)
	assert.NoError(t, InferFormats(sum))
	assert.Zero(t, sum.Format())
	assert.Error(t, CheckResolved(sum))
}

func TestInferFormatsNeverGuessesConversions(t *testing.T) {
	conv := NewConversion(nil, NewVariable("x", Binary64))
	assert.NoError(t, InferFormats(conv))
	assert.Zero(t, conv.Format())
}
