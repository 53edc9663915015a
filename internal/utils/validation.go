package utils

import (
	"errors"
	"fmt"

	"github.com/sysu-ecnc-dev/ta-assign/backend/internal/domain"
)

// ValidateCounts 检查数量字段非负，CSV 导入不经过 validator，只能在这里检查
func ValidateCounts(sections []domain.Section, tas []domain.TA) error {
	for j, section := range sections {
		if section.MinTA < 0 || section.MaxTA < 0 || section.Students < 0 {
			return fmt.Errorf("section %d 的人数字段不能为负数", j)
		}
	}
	for i, ta := range tas {
		if ta.MaxAssigned < 0 {
			return fmt.Errorf("TA %d 的最多分配数不能为负数", i)
		}
	}
	return nil
}

// ValidateTables 检查参考数据的完整性
func ValidateTables(sections []domain.Section, tas []domain.TA) error {
	if len(sections) == 0 {
		return errors.New("至少需要一个 section")
	}
	if len(tas) == 0 {
		return errors.New("至少需要一个 TA")
	}
	if err := ValidateCounts(sections, tas); err != nil {
		return err
	}

	for j, section := range sections {
		if section.MaxTA < section.MinTA {
			return fmt.Errorf("section %d 的最多 TA 数不能小于最少 TA 数", j)
		}
	}

	usernames := make(map[string]bool)
	for i, ta := range tas {
		if len(ta.Preferences) != len(sections) {
			return fmt.Errorf("TA %d 的偏好数量 %d 和 section 数量 %d 不匹配", i, len(ta.Preferences), len(sections))
		}
		for j, p := range ta.Preferences {
			if !p.Valid() {
				return fmt.Errorf("TA %d 对 section %d 的偏好 %q 不合法", i, j, p.String())
			}
		}

		if ta.Username == "" {
			continue
		}
		if usernames[ta.Username] {
			return fmt.Errorf("TA 用户名 %s 重复", ta.Username)
		}
		usernames[ta.Username] = true
	}

	return nil
}
