package api

import (
	"log"

	"github.com/Fussballversager/data-pipeline-buddy/internal/domain"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
)

// RegisterValidators adds the period tags to gin's validator:
//
//	yearmonth  YYYY-MM with a valid month
//	isodate    YYYY-MM-DD
func RegisterValidators() {
	v, ok := binding.Validator.Engine().(*validator.Validate)
	if !ok {
		log.Println("WARN: gin validator engine is not go-playground/validator, period tags not registered")
		return
	}
	register(v, "yearmonth", periodValidator(domain.TierMonth))
	register(v, "isodate", periodValidator(domain.TierDay))
}

func register(v *validator.Validate, tag string, fn validator.Func) {
	if err := v.RegisterValidation(tag, fn); err != nil {
		log.Printf("WARN: Failed to register validation tag %s: %v", tag, err)
	}
}

func periodValidator(tier domain.Tier) validator.Func {
	return func(fl validator.FieldLevel) bool {
		_, err := domain.ParsePeriod(tier, fl.Field().String())
		return err == nil
	}
}
