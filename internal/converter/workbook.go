package converter

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/ginjaninja78/plant-tag-generator/internal/config"
	"github.com/ginjaninja78/plant-tag-generator/internal/sheet"
)

// LoadWorkbook loads every configured source and links the relations.
//
// PARAMETERS:
//   - cfg: The main configuration.
//   - logger: Receives one line per sheet and a warning per relation with
//     unresolved references.
//
// RETURNS:
//   - The workbook, read-only from here on.
//   - An error if a source cannot be loaded or a relation is invalid.
func LoadWorkbook(cfg *config.MainConfig, logger *zap.Logger) (*sheet.Workbook, error) {
	wb := sheet.NewWorkbook()

	for _, src := range cfg.Sources {
		kinds := make(map[string]sheet.Kind, len(src.Columns))
		for col, k := range src.Columns {
			kind, err := sheet.ParseKind(k)
			if err != nil {
				return nil, fmt.Errorf("source %s column %s: %w", src.Name, col, err)
			}
			kinds[col] = kind
		}

		s, err := sheet.Load(src.Name, src.File, sheet.Options{
			Worksheet: src.Worksheet,
			HeaderRow: src.HeaderRow,
			Delimiter: src.Delimiter,
			Encoding:  src.Encoding,
			Kinds:     kinds,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to load source %s: %w", src.Name, err)
		}
		if src.Key != "" {
			if _, ok := s.Column(src.Key); !ok {
				return nil, fmt.Errorf("source %s: key column %s not found", src.Name, src.Key)
			}
		}
		if err := wb.Add(s); err != nil {
			return nil, err
		}

		logger.Info("source loaded",
			zap.String("sheet", s.Name),
			zap.String("file", s.Source),
			zap.Int("rows", len(s.Rows)),
		)
	}

	for _, rel := range cfg.Relations {
		missing, err := wb.Link(sheet.Relation{
			Sheet:  rel.Sheet,
			Field:  rel.Field,
			Target: rel.Target,
			Key:    rel.Key,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to link %s.%s: %w", rel.Sheet, rel.Field, err)
		}
		if missing > 0 {
			logger.Warn("relation has unresolved references",
				zap.String("sheet", rel.Sheet),
				zap.String("field", rel.Field),
				zap.String("target", rel.Target),
				zap.Int("missing", missing),
			)
		}
	}

	return wb, nil
}
