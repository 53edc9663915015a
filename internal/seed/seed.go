package seed

import (
	"log/slog"

	"github.com/sysu-ecnc-dev/ta-assign/backend/internal/domain"
	"github.com/sysu-ecnc-dev/ta-assign/backend/internal/utils"
)

// TablesStore 是导入数据时需要的存储操作，*repository.Repository 实现了它
type TablesStore interface {
	ReplaceTables(sections []domain.Section, tas []domain.TA) error
}

// SeedTablesFromFiles 从 csv 导入 section 和 TA，覆盖数据库中已有的数据
func SeedTablesFromFiles(store TablesStore, sectionsPath, tasPath string) error {
	sections, tas, _, err := LoadTables(sectionsPath, tasPath)
	if err != nil {
		return err
	}

	fillUsernames(tas)

	if err := store.ReplaceTables(sections, tas); err != nil {
		return err
	}

	slog.Info("导入 section 和 TA 成功", slog.Int("sections", len(sections)), slog.Int("tas", len(tas)))
	return nil
}

// SeedRandomTables 生成随机的 section 和 TA 并写入数据库
func SeedRandomTables(store TablesStore, numSections, numTAs int) error {
	sections, tas := utils.GenerateRandomTables(numSections, numTAs)
	dedupeUsernames(tas)

	if err := utils.ValidateTables(sections, tas); err != nil {
		return err
	}

	if err := store.ReplaceTables(sections, tas); err != nil {
		return err
	}

	slog.Info("插入随机 section 和 TA 成功", slog.Int("sections", len(sections)), slog.Int("tas", len(tas)))
	return nil
}

// csv 中没有用户名，用姓名的拼音生成一个
func fillUsernames(tas []domain.TA) {
	for i := range tas {
		if tas[i].Username == "" && tas[i].Name != "" {
			tas[i].Username = utils.GenerateUsernameFromChineseName(tas[i].Name)
		}
	}
	dedupeUsernames(tas)
}

// 随机生成的用户名可能重复，重复的加上行号后缀
func dedupeUsernames(tas []domain.TA) {
	seen := make(map[string]bool)
	for i := range tas {
		if tas[i].Username == "" {
			continue
		}
		for seen[tas[i].Username] {
			tas[i].Username += utils.GenerateRandomID(0, 1)
		}
		seen[tas[i].Username] = true
	}
}
