package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"relationships/model"

	"gorm.io/gorm"
)

// Validate 校验状态定义：
//   - 三个 slug 都不能被其他状态占用（更新时排除自身）
//   - 同一状态的三个 slug 两两不同
func (c *StatusCatalog) Validate(ctx context.Context, status *model.RelationshipStatus) error {
	verr := &ValidationError{}

	if strings.TrimSpace(status.Name) == "" {
		verr.addField("name", "this field is required")
	}

	fields := []struct {
		name  string
		value string
	}{
		{"from_slug", status.FromSlug},
		{"to_slug", status.ToSlug},
		{"symmetrical_slug", status.SymmetricalSlug},
	}
	for _, f := range fields {
		if f.value == "" {
			verr.addField(f.name, "this field is required")
			continue
		}
		owner, err := c.slugOwner(ctx, f.value, status.ID)
		if err != nil {
			return err
		}
		if owner != nil {
			verr.addField(f.name, fmt.Sprintf("%q slug already in use on %s", f.value, owner.Name))
		}
	}

	if status.Verb == "" {
		verr.addField("verb", "this field is required")
	} else {
		var count int64
		q := c.db.WithContext(ctx).Model(&model.RelationshipStatus{}).Where("verb = ?", status.Verb)
		if status.ID != 0 {
			q = q.Where("id <> ?", status.ID)
		}
		if err := q.Count(&count).Error; err != nil {
			return storageError("check relationship status verb", err)
		}
		if count > 0 {
			verr.addField("verb", fmt.Sprintf("%q verb already in use", status.Verb))
		}
	}

	// 字段错误优先，通过后才检查三者是否相同
	if verr.empty() {
		if status.FromSlug == status.ToSlug ||
			status.ToSlug == status.SymmetricalSlug ||
			status.SymmetricalSlug == status.FromSlug {
			verr.NonFieldErrors = append(verr.NonFieldErrors, msgSlugsMustDiffer)
		}
	}

	if verr.empty() {
		return nil
	}
	return verr
}

// slugOwner 返回占用该 slug 的其他状态，没有则返回 nil
func (c *StatusCatalog) slugOwner(ctx context.Context, slug string, excludeID uint) (*model.RelationshipStatus, error) {
	q := c.db.WithContext(ctx).
		Where("from_slug = ? OR to_slug = ? OR symmetrical_slug = ?", slug, slug, slug)
	if excludeID != 0 {
		q = q.Where("id <> ?", excludeID)
	}

	var owner model.RelationshipStatus
	err := q.Order("id ASC").First(&owner).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, storageError("check relationship status slug", err)
	}
	return &owner, nil
}
