package trace

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

// ErrNotFound is returned when a kernel's .trc file does not exist. The
// caller distinguishes kernel 0 (fatal) from any later kernel (end of loop).
var ErrNotFound = errors.New("trace: file not found")

// ErrEmpty is returned when a .trc file exists but contains zero load
// accesses. Treated as the end of the kernel loop, with a warning.
var ErrEmpty = errors.New("trace: no load accesses in file")

// Reader loads one kernel's trace given a benchmark directory name and a
// kernel name (already zero-padded, e.g. "matmul_03").
type Reader interface {
	ReadKernel(benchDir, kernelName string) (Dim3, []Thread, error)
}

// FileReader reads traces from output/<bench>/<kernel>.trc, the layout the
// original tracer writes.
type FileReader struct {
	// Root is the directory traces live under, normally "output".
	Root string
}

// ReadKernel implements Reader.
func (r FileReader) ReadKernel(bench, kernel string) (Dim3, []Thread, error) {
	root := r.Root
	if root == "" {
		root = "output"
	}
	path := filepath.Join(root, bench, kernel+".trc")

	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return Dim3{}, nil, ErrNotFound
		}
		return Dim3{}, nil, err
	}
	defer f.Close()

	sc := bufio.NewScanner(f)
	sc.Buffer(make([]byte, 64*1024), 16*1024*1024)

	if !sc.Scan() {
		return Dim3{}, nil, ErrEmpty
	}
	header := strings.Fields(sc.Text())
	if len(header) != 4 {
		return Dim3{}, nil, fmt.Errorf("trace: malformed header %q", sc.Text())
	}
	x, err1 := strconv.ParseUint(header[1], 10, 32)
	y, err2 := strconv.ParseUint(header[2], 10, 32)
	z, err3 := strconv.ParseUint(header[3], 10, 32)
	if err1 != nil || err2 != nil || err3 != nil {
		return Dim3{}, nil, fmt.Errorf("trace: malformed blockdim in header %q", sc.Text())
	}
	dim := Dim3{X: uint32(x), Y: uint32(y), Z: uint32(z)}

	var threads []Thread
	numThreads := 0
	numAccesses := 0

	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" {
			continue
		}
		fields := strings.Fields(line)
		if len(fields) != 4 {
			continue
		}
		tid, err1 := strconv.Atoi(fields[0])
		dir, err2 := strconv.Atoi(fields[1])
		addr, err3 := strconv.ParseUint(fields[2], 10, 64)
		bytes, err4 := strconv.ParseUint(fields[3], 10, 32)
		if err1 != nil || err2 != nil || err3 != nil || err4 != nil || tid < 0 {
			return Dim3{}, nil, fmt.Errorf("trace: malformed record %q", line)
		}
		if Direction(dir) != Load {
			continue
		}

		for tid >= len(threads) {
			threads = append(threads, Thread{})
		}
		threads[tid].Append(Access{
			Direction:  Load,
			Address:    addr,
			EndAddress: addr + bytes - 1,
			Bytes:      uint32(bytes),
			Width:      1,
		})
		numAccesses++
		if tid+1 > numThreads {
			numThreads = tid + 1
		}
	}
	if err := sc.Err(); err != nil {
		return Dim3{}, nil, err
	}
	if numAccesses == 0 || numThreads == 0 {
		return Dim3{}, nil, ErrEmpty
	}

	return dim, threads[:numThreads], nil
}
