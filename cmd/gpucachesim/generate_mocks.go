//go:generate mockgen -destination=mock_reader.go -package=main github.com/tue-es/gpu-cache-model/trace Reader
//go:generate mockgen -destination=mock_store.go -package=main github.com/tue-es/gpu-cache-model/history Store

package main
