package maplink

import (
	"route-optimizer-service/internal/domain"
	"strconv"
	"strings"
)

const defaultYandexBaseURL = "https://yandex.ru/maps/"

// YandexLinkBuilder renders coordinates as a Yandex Maps routing link:
// <base>?rtext=lat,lon~lat,lon&mode=routes
type YandexLinkBuilder struct {
	baseURL string
}

func NewYandexLinkBuilder(baseURL string) *YandexLinkBuilder {
	baseURL = strings.TrimSpace(baseURL)
	if baseURL == "" {
		baseURL = defaultYandexBaseURL
	}
	baseURL = strings.TrimRight(baseURL, "?")
	return &YandexLinkBuilder{baseURL: baseURL}
}

func (b *YandexLinkBuilder) BuildLink(coords []domain.Coordinates) string {
	if len(coords) == 0 {
		return ""
	}

	points := make([]string, len(coords))
	for i, c := range coords {
		points[i] = formatCoord(c.Lat) + "," + formatCoord(c.Lon)
	}

	return b.baseURL + "?rtext=" + strings.Join(points, "~") + "&mode=routes"
}

func formatCoord(v float64) string { return strconv.FormatFloat(v, 'f', -1, 64) }
