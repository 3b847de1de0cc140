package server

import (
	"fmt"
	"net/url"
	"strings"
	"unicode/utf8"

	"vboard/internal/models"
)

func normalizeTitle(value string) (string, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return "", badRequestCode(fmt.Errorf("title is required"), ErrCodeMissingRequired)
	}
	if utf8.RuneCountInString(value) > models.MaxTitleLength {
		return "", badRequest(fmt.Errorf("title must be at most %d characters", models.MaxTitleLength))
	}
	return value, nil
}

// normalizeImageURL accepts absolute http(s) URLs only.
func normalizeImageURL(value string) (string, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return "", badRequestCode(fmt.Errorf("image_url is required"), ErrCodeMissingRequired)
	}
	if len(value) > models.MaxImageURLLength {
		return "", badRequestCode(fmt.Errorf("image_url must be at most %d characters", models.MaxImageURLLength), ErrCodeInvalidImageURL)
	}
	u, err := url.Parse(value)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return "", badRequestCode(fmt.Errorf("image_url must be an absolute http or https URL"), ErrCodeInvalidImageURL)
	}
	return value, nil
}

func normalizeTags(values []string) ([]string, error) {
	tags, err := models.NormalizeTags(values)
	if err != nil {
		return nil, badRequestCode(err, ErrCodeInvalidTags)
	}
	return tags, nil
}
