package asm

import (
	"nikand.dev/go/heap"
	"tlog.app/go/errors"

	"github.com/slowlang/ix/compiler/set"
)

// Analyze walks the control flow graph of c and computes the maximum operand stack depth.
// Every path must agree on the depth at merge points and no path may fall off the end.
func Analyze(c *Code) (maxStack int, err error) {
	n := len(c.Instrs)
	if n == 0 {
		return 0, nil
	}

	for l, idx := range c.labels {
		if idx == -1 && c.depths[l] != -1 {
			return 0, errors.New("jump to unbound label %d", l)
		}
	}

	depth := make([]int, n)

	var seen set.Bits[int]

	q := heap.Heap[int]{Less: func(d []int, i, j int) bool { return d[i] < d[j] }}

	visit := func(at, d int) error {
		if at >= n {
			return errors.New("control falls off the end of code")
		}

		if seen.IsSet(at) {
			if depth[at] != d {
				return errors.New("stack depth mismatch at %d: %d vs %d", at, depth[at], d)
			}

			return nil
		}

		seen.Set(at)
		depth[at] = d
		q.Push(at)

		return nil
	}

	err = visit(0, 0)
	if err != nil {
		return 0, err
	}

	for q.Len() != 0 {
		i := q.Pop()
		in := c.Instrs[i]

		d := depth[i]
		if d < in.Pop {
			return 0, errors.New("stack underflow at %d (%v): depth %d, pop %d", i, in.Op, d, in.Pop)
		}

		d += in.Push - in.Pop
		maxStack = max(maxStack, d)

		if in.Op.IsJump() {
			err = visit(c.labels[in.Label], d)
			if err != nil {
				return 0, errors.Wrap(err, "jump at %d", i)
			}
		}

		if !in.Op.Terminal() {
			err = visit(i+1, d)
			if err != nil {
				return 0, errors.Wrap(err, "at %d (%v)", i, in.Op)
			}
		}
	}

	return maxStack, nil
}
