package report

import (
	"pyindex/internal/engine/index"
	"pyindex/internal/engine/object"
	"pyindex/internal/ui/report/formats"
)

type DOTGenerator = formats.DOTGenerator
type TSVGenerator = formats.TSVGenerator

func NewDOTGenerator(root object.Object) *DOTGenerator {
	return formats.NewDOTGenerator(root)
}

func NewTSVGenerator(idx *index.Index, root string) *TSVGenerator {
	return formats.NewTSVGenerator(idx, root)
}
