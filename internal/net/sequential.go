package net

import (
	"fmt"
	"io"

	"github.com/FlavioCFOliveira/imgae/internal/layer"
)

// Summary writes a summary of the network architecture to w.
func (n *Network) Summary(w io.Writer, title string) {
	fmt.Fprintf(w, "Model: %s\n", title)
	fmt.Fprintln(w, "_________________________________________________________________")
	fmt.Fprintf(w, "%-25s %-20s %-10s\n", "Layer (type)", "Output Shape", "Param #")
	fmt.Fprintln(w, "=================================================================")

	total := 0
	width := 0
	for i, l := range n.layers {
		if d, ok := l.(*layer.Dense); ok {
			width = d.OutSize()
		}
		params := layer.CountParameters(l.Parameters())
		total += params
		fmt.Fprintf(w, "%-25s %-20s %-10d\n", fmt.Sprintf("%s_%d", l.Name(), i), fmt.Sprintf("(%d)", width), params)
	}
	fmt.Fprintln(w, "=================================================================")
	fmt.Fprintf(w, "Total params: %d\n", total)
	fmt.Fprintln(w, "_________________________________________________________________")
}
