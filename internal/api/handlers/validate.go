package handlers

import (
	"errors"
	"fmt"
	"reflect"
	"route-optimizer-service/internal/api/dto"
	"route-optimizer-service/internal/domain"
	"strings"

	"github.com/go-playground/validator/v10"
)

// newValidator returns a validator with the request-specific tags registered:
// coord ([lat, lon] in range), priority (a level of ranking) and timewindow
// ([start, end] with 0 <= start <= end <= 1440). Warehouses also get
// usage <= capacity, reported as usagecapacity. Field names follow json tags.
//
// It panics if a tag fails to register.
func newValidator(ranking domain.PriorityRanking) *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())

	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})

	tags := map[string]validator.Func{
		"coord":      validCoord,
		"timewindow": validTimeWindow,
		"priority": func(fl validator.FieldLevel) bool {
			return ranking.Known(fl.Field().String())
		},
	}
	for tag, fn := range tags {
		if err := v.RegisterValidation(tag, fn); err != nil {
			panic(fmt.Sprintf("register validation %q: %v", tag, err))
		}
	}
	v.RegisterStructValidation(validWarehouseUsage, dto.WarehouseRequest{})

	return v
}

func validWarehouseUsage(sl validator.StructLevel) {
	w, ok := sl.Current().Interface().(dto.WarehouseRequest)
	if !ok || w.Usage == nil {
		return
	}
	capacity := defaultWarehouseCapacity
	if w.Capacity != nil {
		capacity = *w.Capacity
	}
	if *w.Usage > capacity {
		sl.ReportError(*w.Usage, "usage", "Usage", "usagecapacity", "")
	}
}

var validCoord validator.Func = func(fl validator.FieldLevel) bool {
	c, ok := fl.Field().Interface().([]float64)
	if !ok || len(c) != 2 {
		return false
	}
	return domain.Coordinates{Lat: c[0], Lon: c[1]}.Valid()
}

var validTimeWindow validator.Func = func(fl validator.FieldLevel) bool {
	w, ok := fl.Field().Interface().([]int)
	if !ok || len(w) != 2 {
		return false
	}
	return w[0] >= 0 && w[0] <= w[1] && w[1] <= domain.DayMinutes
}

// fieldErrors flattens validation errors into "path: rule" strings.
func fieldErrors(err error) []string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return []string{err.Error()}
	}

	out := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		path := fe.Namespace()
		if _, rest, ok := strings.Cut(path, "."); ok {
			path = rest
		}
		rule := fe.Tag()
		if fe.Param() != "" {
			rule = fmt.Sprintf("%s=%s", rule, fe.Param())
		}
		out = append(out, path+": "+rule)
	}
	return out
}
