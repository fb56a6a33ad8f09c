package hwconfig

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// ErrConfigMissing is returned when current.conf cannot be opened. The
// caller treats this as fatal (§7 "Configuration missing").
var ErrConfigMissing = errors.New("hwconfig: configuration file missing")

// configFields is the fixed, ordered set of "identifier value" lines
// current.conf carries.
var configFields = []string{
	"line_size", "cache_bytes", "cache_ways",
	"num_mshr", "mem_latency", "mem_latency_stddev",
}

// Load parses the "identifier value" lines of a current.conf file and
// builds Settings from them. Every identifier configFields lists must be
// present; the lines may appear in any order.
func Load(path string) (Settings, error) {
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return Settings{}, ErrConfigMissing
		}
		return Settings{}, err
	}
	defer f.Close()

	values := make(map[string]string, len(configFields))
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" {
			continue
		}
		fields := strings.Fields(line)
		if len(fields) != 2 {
			return Settings{}, fmt.Errorf("hwconfig: malformed line %q in %s", line, path)
		}
		values[fields[0]] = fields[1]
	}
	if err := sc.Err(); err != nil {
		return Settings{}, err
	}

	get := func(name string) (uint32, error) {
		raw, ok := values[name]
		if !ok {
			return 0, fmt.Errorf("hwconfig: missing %q in %s", name, path)
		}
		v, err := strconv.ParseUint(raw, 10, 32)
		if err != nil {
			return 0, fmt.Errorf("hwconfig: %q value %q is not a valid integer", name, raw)
		}
		return uint32(v), nil
	}

	lineSize, err := get("line_size")
	if err != nil {
		return Settings{}, err
	}
	cacheBytes, err := get("cache_bytes")
	if err != nil {
		return Settings{}, err
	}
	cacheWays, err := get("cache_ways")
	if err != nil {
		return Settings{}, err
	}
	numMSHR, err := get("num_mshr")
	if err != nil {
		return Settings{}, err
	}
	memLatency, err := get("mem_latency")
	if err != nil {
		return Settings{}, err
	}
	stddevRaw, err := get("mem_latency_stddev")
	if err != nil {
		return Settings{}, err
	}

	return NewBuilder().
		WithLineSize(lineSize).
		WithCacheBytes(cacheBytes).
		WithCacheWays(cacheWays).
		WithNumMSHR(numMSHR).
		WithMemLatency(memLatency).
		WithMemLatencyStddev(float64(stddevRaw)).
		Build()
}

// LoadEnv loads current.conf and then overlays it with any GPUCACHESIM_*
// environment variables, optionally sourced from a .env file sitting next
// to the config file, in the same directory. This lets a CI run or a one-off experiment
// override a setting without editing current.conf.
func LoadEnv(path string) (Settings, error) {
	envPath := filepath.Join(filepath.Dir(path), ".env")
	_ = godotenv.Load(envPath) // optional: absence is not an error

	s, err := Load(path)
	if err != nil {
		return s, err
	}

	if v := os.Getenv("GPUCACHESIM_NUM_MSHR"); v != "" {
		if n, err := strconv.ParseUint(v, 10, 32); err == nil {
			s.NumMSHR = uint32(n)
		}
	}
	if v := os.Getenv("GPUCACHESIM_HASH_MODE"); v != "" {
		switch strings.ToLower(v) {
		case "direct":
			s.HashMode = HashDirect
		case "xor":
			s.HashMode = HashXOR
		case "fermi":
			s.HashMode = HashFermi
		}
	}
	return s, nil
}
