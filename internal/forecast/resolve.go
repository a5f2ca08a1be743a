package forecast

import (
	"github.com/lcc-aid/fsystem-backend/internal/models"
	"github.com/ryanuber/go-glob"
	"gorm.io/gorm"
)

// Resolve applies donor rules and duplicate detection to parsed
// previews in place. Rows stay importable without a donor match, the
// unmatched name is kept for manual review.
func Resolve(db *gorm.DB, previews []RecordPreview) error {
	rules, err := models.DonorRulesByPriority(db)
	if err != nil {
		return err
	}

	for i := range previews {
		preview := &previews[i]

		for _, rule := range rules {
			if glob.Glob(rule.Match, preview.Record.DonorName) {
				id := rule.DonorID
				preview.Record.DonorID = &id
				preview.DonorMatched = true
				break
			}
		}

		var duplicates []models.ForecastRecord
		err = db.Where("import_hash = ?", preview.Record.ImportHash).Find(&duplicates).Error
		if err != nil {
			return err
		}

		for _, duplicate := range duplicates {
			preview.DuplicateIDs = append(preview.DuplicateIDs, duplicate.ID.String())
		}
	}

	return nil
}
