package domain

import (
	"errors"
	"fmt"
	"strings"
)

type SortColumn string

const (
	SortByName         SortColumn = "name"
	SortByDiskUsage    SortColumn = "disk-usage"
	SortByApparentSize SortColumn = "apparent-size"
	SortByItemCount    SortColumn = "itemcount"
	SortByModTime      SortColumn = "mtime"
)

var SortColumns = []SortColumn{SortByName, SortByDiskUsage, SortByApparentSize, SortByItemCount, SortByModTime}

type SortOrder string

const (
	SortAsc  SortOrder = "asc"
	SortDesc SortOrder = "desc"
)

var ErrInvalidSort = errors.New("invalid sort specification")

type SortSpec struct {
	Column SortColumn
	Order  SortOrder
}

func DefaultOrder(column SortColumn) SortOrder {
	switch column {
	case SortByName, SortByModTime:
		return SortAsc
	default:
		return SortDesc
	}
}

func (spec SortSpec) String() string {
	return string(spec.Column) + "-" + string(spec.Order)
}

func (spec SortSpec) Reversed() SortSpec {
	if spec.Order == SortAsc {
		spec.Order = SortDesc
	} else {
		spec.Order = SortAsc
	}
	return spec
}

// ParseSort accepts "column" or "column-asc|desc".
func ParseSort(value string) (SortSpec, error) {
	value = strings.ToLower(strings.TrimSpace(value))
	for _, column := range SortColumns {
		name := string(column)
		if value == name {
			return SortSpec{Column: column, Order: DefaultOrder(column)}, nil
		}
		if rest, ok := strings.CutPrefix(value, name+"-"); ok {
			switch SortOrder(rest) {
			case SortAsc, SortDesc:
				return SortSpec{Column: column, Order: SortOrder(rest)}, nil
			}
		}
	}
	return SortSpec{}, fmt.Errorf("%w: %q", ErrInvalidSort, value)
}
