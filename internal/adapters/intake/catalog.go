package intake

import (
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"

	"github.com/jaykayes/lottery-script/internal/domain/model"
)

// Inventory sheet columns.
const (
	ColName   = "Name"
	ColNumber = "Number"
	ColID     = "ID"
	ColGroup  = "Group"
)

const containerSuffix = "Container:"

// ReadCatalog parses the inventory sheet. A row whose name ends in
// "Container:" starts the section of the pool named before it; rows before
// the first section and rows without a name are skipped. The item id is the
// ID column when present, otherwise the spreadsheet row number.
func ReadCatalog(r io.Reader) (model.Catalog, error) {
	h, records, err := rows(r, ErrMalformedCatalog)
	if err != nil {
		return nil, err
	}
	if err := h.require(ErrMalformedCatalog, ColName, ColNumber); err != nil {
		return nil, err
	}

	catalog := make(model.Catalog)
	var pool model.Pool
	for i, rec := range records {
		row := i + 2
		name := h.get(rec, ColName)
		if name == "" {
			continue
		}
		if strings.HasSuffix(name, containerSuffix) {
			pool = model.Pool(strings.TrimSpace(strings.TrimSuffix(name, containerSuffix)))
			continue
		}
		if pool == "" {
			continue
		}

		item, err := parseItem(h, rec, row, name, pool)
		if err != nil {
			return nil, err
		}
		if prev, dup := catalog[item.ID]; dup {
			return nil, fmt.Errorf("%w: row %d: id %d already used by %q: %w",
				ErrMalformedCatalog, row, item.ID, prev.Name, model.ErrDuplicateItem)
		}
		catalog[item.ID] = item
	}
	return catalog, nil
}

// ReadCatalogFile reads the inventory sheet at path.
func ReadCatalogFile(path string) (model.Catalog, error) {
	return withFile(path, ReadCatalog)
}

func parseItem(h header, rec []string, row int, name string, pool model.Pool) (model.InventoryItem, error) {
	item := model.InventoryItem{ID: row, Name: name, Pool: pool}

	stock, err := parseCount(h.get(rec, ColNumber))
	if err != nil {
		return item, fmt.Errorf("%w: row %d %q: number: %v", ErrMalformedCatalog, row, name, err)
	}
	item.Stock = stock

	if raw := h.get(rec, ColID); h.has(ColID) && raw != "" {
		id, err := strconv.Atoi(raw)
		if err != nil {
			return item, fmt.Errorf("%w: row %d %q: id: %v", ErrMalformedCatalog, row, name, err)
		}
		item.ID = id
	}

	if raw := h.get(rec, ColGroup); raw != "" {
		m, err := ParseMembership(raw)
		if err != nil {
			return item, fmt.Errorf("%w: row %d %q: %v", ErrMalformedCatalog, row, name, err)
		}
		item.Group = m
	}
	return item, nil
}

// parseCount accepts integers and integral floats such as "3.0". Empty is 0.
func parseCount(s string) (int, error) {
	if s == "" {
		return 0, nil
	}
	if n, err := strconv.Atoi(s); err == nil {
		return n, nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || f != math.Trunc(f) {
		return 0, fmt.Errorf("not a whole number: %q", s)
	}
	return int(f), nil
}

// ParseMembership reads "primary:<tag>" or "dependent:<tag>". Empty means
// no group.
func ParseMembership(s string) (model.Membership, error) {
	if strings.TrimSpace(s) == "" {
		return model.Membership{}, nil
	}
	kind, tag, ok := strings.Cut(s, ":")
	tag = strings.TrimSpace(tag)
	if !ok || tag == "" {
		return model.Membership{}, fmt.Errorf("group %q: want primary:<tag> or dependent:<tag>", s)
	}
	switch strings.ToLower(strings.TrimSpace(kind)) {
	case "primary":
		return model.Membership{Kind: model.GroupPrimary, Tag: tag}, nil
	case "dependent":
		return model.Membership{Kind: model.GroupDependent, Tag: tag}, nil
	default:
		return model.Membership{}, fmt.Errorf("group %q: unknown kind %q", s, kind)
	}
}
