package buffer

import (
	"math"
	"runtime"
	"sync"
	"time"

	"github.com/Carmen-Shannon/automation/tools/worker"
	"github.com/go-gl/mathgl/mgl32"
)

const (
	// QuantizeBits is the width of each packed axis.
	QuantizeBits = 21

	// QuantizeMax is the largest value a packed axis holds.
	QuantizeMax = 1<<QuantizeBits - 1

	// QuantizedSize is the byte size of one packed position.
	QuantizedSize = 8

	zLowBits  = 32 - QuantizeBits
	zLowMask  = 1<<zLowBits - 1
	axisMask  = QuantizeMax
	chunkSize = 4096
)

func quantizeAxis(v, bias, scale float32) uint32 {
	q := math.Round(float64((v + bias) * scale))
	if q < 0 || math.IsNaN(q) {
		return 0
	}
	if q > QuantizeMax {
		return QuantizeMax
	}
	return uint32(q)
}

// Quantize packs a position into two words.
// Word 0 holds x in bits 0-20 and the low 11 bits of z above it; word 1 holds y in
// bits 0-20 and the high 10 bits of z in bits 21-30. Each axis is stored as
// round((v + bias) * scale) clamped to [0, QuantizeMax].
func Quantize(p, bias mgl32.Vec3, scale float32) [2]uint32 {
	x := quantizeAxis(p[0], bias[0], scale)
	y := quantizeAxis(p[1], bias[1], scale)
	z := quantizeAxis(p[2], bias[2], scale)
	return [2]uint32{
		x | (z&zLowMask)<<QuantizeBits,
		y | (z>>zLowBits)<<QuantizeBits,
	}
}

// Dequantize reverses Quantize. The result is within 0.5/scale of the original on every
// axis whose biased, scaled value was inside the packed range.
func Dequantize(w [2]uint32, bias mgl32.Vec3, scale float32) mgl32.Vec3 {
	x := w[0] & axisMask
	y := w[1] & axisMask
	z := w[0]>>QuantizeBits | (w[1]>>QuantizeBits)<<zLowBits
	return mgl32.Vec3{
		float32(x)/scale - bias[0],
		float32(y)/scale - bias[1],
		float32(z)/scale - bias[2],
	}
}

var (
	poolOnce sync.Once
	pool     worker.DynamicWorkerPool
)

func startPool() {
	poolOnce.Do(func() {
		pool = worker.NewDynamicWorkerPool(runtime.NumCPU(), 256, 1*time.Second)
	})
}

// QuantizeAll packs every point and returns the words in order, two per point.
// Streams larger than one chunk are split across a shared worker pool. Only CPU
// memory is touched, so the pool never issues device calls.
func QuantizeAll(points []mgl32.Vec3, bias mgl32.Vec3, scale float32) []uint32 {
	out := make([]uint32, 2*len(points))
	pack := func(lo, hi int) {
		for i := lo; i < hi; i++ {
			w := Quantize(points[i], bias, scale)
			out[2*i], out[2*i+1] = w[0], w[1]
		}
	}
	if len(points) <= chunkSize {
		pack(0, len(points))
		return out
	}

	startPool()
	var wg sync.WaitGroup
	for id, lo := 0, 0; lo < len(points); id, lo = id+1, lo+chunkSize {
		hi := min(lo+chunkSize, len(points))
		wg.Add(1)
		start, end := lo, hi
		pool.SubmitTask(worker.Task{
			ID: id,
			Do: func() (any, error) {
				defer wg.Done()
				pack(start, end)
				return nil, nil
			},
		})
	}
	wg.Wait()
	return out
}
