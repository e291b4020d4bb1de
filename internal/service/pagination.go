package service

import "github.com/noah-isme/gcc-pulse-api/internal/dto"

const (
	defaultPageSize = 20
	maxPageSize     = 100
)

// normalizePage clamps paging input and returns the offset it implies.
func normalizePage(page, pageSize int) (int, int, int) {
	if page < 1 {
		page = 1
	}
	switch {
	case pageSize <= 0:
		pageSize = defaultPageSize
	case pageSize > maxPageSize:
		pageSize = maxPageSize
	}
	return page, pageSize, (page - 1) * pageSize
}

func pageMeta(page, pageSize int, total int64) dto.PageMeta {
	return dto.PageMeta{Page: page, PageSize: pageSize, Total: total}
}
