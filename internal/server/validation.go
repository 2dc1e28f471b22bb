package server

import (
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

const (
	maxNameLength    = 40
	maxCommentLength = 280
	maxProductIDLen  = 64
	maxCartItems     = 20
)

func validateUserID(id string) (string, error) {
	trimmed := strings.TrimSpace(id)
	if trimmed == "" {
		return "", errors.New("user_id is required")
	}
	if len(trimmed) > maxProductIDLen {
		return "", fmt.Errorf("user_id must be %d characters or fewer", maxProductIDLen)
	}
	return trimmed, nil
}

func validateDisplayName(name string) (string, error) {
	trimmed := normalizeText(name)
	if trimmed == "" {
		return "", errors.New("display_name is required")
	}
	if len(trimmed) > maxNameLength {
		return "", fmt.Errorf("display_name must be %d characters or fewer", maxNameLength)
	}
	return trimmed, nil
}

func validateComment(text string) (string, error) {
	trimmed := normalizeText(text)
	if len(trimmed) > maxCommentLength {
		return "", fmt.Errorf("comment must be %d characters or fewer", maxCommentLength)
	}
	return trimmed, nil
}

func validateCartItem(item CartItem) (CartItem, error) {
	item.ProductID = strings.TrimSpace(item.ProductID)
	if item.ProductID == "" {
		return item, errors.New("product_id is required")
	}
	if len(item.ProductID) > maxProductIDLen {
		return item, fmt.Errorf("product_id must be %d characters or fewer", maxProductIDLen)
	}
	item.Name = normalizeText(item.Name)
	if item.Name == "" {
		return item, errors.New("item name is required")
	}
	if item.Price.LessThan(decimal.Zero) {
		return item, errors.New("item price must not be negative")
	}
	return item, nil
}

func normalizeText(text string) string {
	fields := strings.Fields(strings.TrimSpace(text))
	return strings.Join(fields, " ")
}
