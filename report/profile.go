package report

import (
	"os"
	"path/filepath"

	"github.com/google/pprof/profile"

	"github.com/tue-es/gpu-cache-model/decompose"
)

// categoryNames lists the miss categories in the order they appear as
// samples in the emitted profile.
var categoryNames = []string{"compulsory", "capacity", "associativity", "latency", "mshr", "hit"}

func categoryValues(b decompose.Breakdown) []int64 {
	return []int64{b.Compulsory, b.Capacity, b.Associativity, b.Latency, b.MSHR, b.Hits}
}

// WriteProfile emits output/<bench>/<kernel>.pb.gz: a pprof profile whose
// samples attribute accesses to one "function" per miss category, so the
// breakdown can be inspected with the standard `go tool pprof` flame graph
// and top views instead of only the plain-text .out file.
func WriteProfile(root, bench, kernel string, b decompose.Breakdown) error {
	path := filepath.Join(root, bench, kernel+".pb.gz")
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}

	p := &profile.Profile{
		SampleType: []*profile.ValueType{
			{Type: "accesses", Unit: "count"},
		},
	}

	for i, name := range categoryNames {
		fn := &profile.Function{
			ID:   uint64(i + 1),
			Name: name,
		}
		loc := &profile.Location{
			ID: uint64(i + 1),
			Line: []profile.Line{
				{Function: fn},
			},
		}
		p.Function = append(p.Function, fn)
		p.Location = append(p.Location, loc)
		p.Sample = append(p.Sample, &profile.Sample{
			Location: []*profile.Location{loc},
			Value:    []int64{categoryValues(b)[i]},
		})
	}

	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	return p.Write(f)
}
