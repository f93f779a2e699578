package user

import (
	"sync"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
)

// ValidPhone 要求10位数字且以6-9开头
func ValidPhone(phone string) bool {
	if len(phone) != 10 {
		return false
	}
	for _, r := range phone {
		if r < '0' || r > '9' {
			return false
		}
	}
	return phone[0] >= '6'
}

// ValidAge 只接受两个年龄段
func ValidAge(age string) bool {
	return age == AgeToddler || age == AgeJunior
}

var registerOnce sync.Once

// RegisterValidators 向 gin 的校验引擎注册 phone 和 agebracket 规则
func RegisterValidators() {
	registerOnce.Do(func() {
		v, ok := binding.Validator.Engine().(*validator.Validate)
		if !ok {
			return
		}
		_ = v.RegisterValidation("phone", func(fl validator.FieldLevel) bool {
			return ValidPhone(fl.Field().String())
		})
		_ = v.RegisterValidation("agebracket", func(fl validator.FieldLevel) bool {
			return ValidAge(fl.Field().String())
		})
	})
}
