package machine

import "golang.org/x/exp/constraints"

// These small generic helpers back the typed arithmetic opcodes
// (ADD_INT, ADD_FLOAT, and so on), reserved by the instruction set for a
// future inlining pass that would prove an operand's type statically and
// skip the runtime dispatch ADD/SUBTRACT/etc otherwise perform.

func addNum[T constraints.Integer | constraints.Float](a, b T) T { return a + b }
func subNum[T constraints.Integer | constraints.Float](a, b T) T { return a - b }
func mulNum[T constraints.Integer | constraints.Float](a, b T) T { return a * b }
func negNum[T constraints.Integer | constraints.Float](a T) T    { return -a }
