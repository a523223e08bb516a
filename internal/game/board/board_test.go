package board

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

func TestEvaluate_EmptyBoard(t *testing.T) {
	_, ok := Evaluate(Board{})
	assert.False(t, ok)
}

func TestEvaluate_EachLine(t *testing.T) {
	for _, l := range Lines {
		for _, m := range []Mark{X, O} {
			var b Board
			for _, i := range l {
				b[i] = m
			}
			win, ok := Evaluate(b)
			require.True(t, ok, "line %v with %s", l, m)
			assert.Equal(t, m, win.Mark)
			assert.Equal(t, l, win.Line)
		}
	}
}

func TestEvaluate_MixedLineIsNotAWin(t *testing.T) {
	b := Board{X, X, O, Empty, Empty, Empty, Empty, Empty, Empty}
	_, ok := Evaluate(b)
	assert.False(t, ok)
}

func TestEvaluate_ScanOrderPicksRowBeforeColumn(t *testing.T) {
	// Row 0 and column 0 are both complete; rows are scanned first.
	b := Board{
		X, X, X,
		X, O, O,
		X, O, O,
	}
	win, ok := Evaluate(b)
	require.True(t, ok)
	assert.Equal(t, Line{0, 1, 2}, win.Line)
}

func TestEvaluate_FullBoardDraw(t *testing.T) {
	b := Board{
		X, O, X,
		X, O, O,
		O, X, X,
	}
	_, ok := Evaluate(b)
	assert.False(t, ok)
	assert.True(t, b.Full())
}

func TestMark_Opponent(t *testing.T) {
	assert.Equal(t, O, X.Opponent())
	assert.Equal(t, X, O.Opponent())
	assert.Equal(t, Empty, Empty.Opponent())
}

func TestMark_JSON(t *testing.T) {
	data, err := json.Marshal(Board{X, Empty, O})
	require.NoError(t, err)
	assert.Equal(t, `["X",null,"O",null,null,null,null,null,null]`, string(data))

	var b Board
	require.NoError(t, json.Unmarshal(data, &b))
	assert.Equal(t, Board{X, Empty, O}, b)

	var m Mark
	assert.Error(t, json.Unmarshal([]byte(`"Z"`), &m))
}

func TestInRange(t *testing.T) {
	assert.True(t, InRange(0))
	assert.True(t, InRange(8))
	assert.False(t, InRange(-1))
	assert.False(t, InRange(9))
}

// Property-based tests

func drawBoard(t *rapid.T) Board {
	var b Board
	for i := range b {
		b[i] = Mark(rapid.IntRange(0, 2).Draw(t, "cell"))
	}
	return b
}

func TestPropertyWinIffUniformLine(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		b := drawBoard(t)

		uniform := false
		for _, l := range Lines {
			if b[l[0]] != Empty && b[l[0]] == b[l[1]] && b[l[1]] == b[l[2]] {
				uniform = true
				break
			}
		}

		win, ok := Evaluate(b)
		if ok != uniform {
			t.Fatalf("Evaluate(%v) = %v, uniform line present = %v", b, ok, uniform)
		}
		if ok {
			for _, i := range win.Line {
				if b[i] != win.Mark {
					t.Fatalf("reported line %v does not hold %s on %v", win.Line, win.Mark, b)
				}
			}
		}
	})
}

func TestPropertyEvaluateDeterministic(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		b := drawBoard(t)
		w1, ok1 := Evaluate(b)
		w2, ok2 := Evaluate(b)
		if w1 != w2 || ok1 != ok2 {
			t.Fatalf("Evaluate not deterministic on %v", b)
		}
	})
}
