package layer

import (
	"fmt"

	"github.com/chewxy/math32"
)

// Init selects the weight initialization scheme of a Dense layer.
type Init int

const (
	// He draws N(0, 2/in); use in front of ReLU.
	He Init = iota
	// Xavier draws N(0, 2/(in+out)); use in front of Sigmoid.
	Xavier
)

// Stddev returns the standard deviation the scheme uses for an in x out layer.
func (i Init) Stddev(in, out int) float32 {
	switch i {
	case Xavier:
		return math32.Sqrt(2 / float32(in+out))
	default:
		return math32.Sqrt(2 / float32(in))
	}
}

func (i Init) String() string {
	switch i {
	case He:
		return "he"
	case Xavier:
		return "xavier"
	default:
		return fmt.Sprintf("Init(%d)", int(i))
	}
}
