package rule_test

import (
	"errors"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yeisme/iolabel/pkg/rule"
)

type mountRule struct {
	Pattern string `rule:"required,regexp"`
	FsName  string `rule:"required"`
}

type listQuery struct {
	Mode  string `rule:"omitempty,oneof=read write unknown"`
	Limit int    `rule:"min=0,max=1000"`
}

func TestEngine(t *testing.T) {
	require.NotNil(t, rule.Engine())
	assert.Same(t, rule.Engine(), rule.Engine())
}

func TestValidateStruct(t *testing.T) {
	require.NoError(t, rule.ValidateStruct(mountRule{Pattern: `/scratch[0-9]`, FsName: "scratch"}))
	require.Error(t, rule.ValidateStruct(mountRule{Pattern: `/scratch[`, FsName: "scratch"}))
	require.Error(t, rule.ValidateStruct(mountRule{Pattern: `/scratch`}))

	require.NoError(t, rule.ValidateStruct(listQuery{Mode: "read", Limit: 10}))
	require.Error(t, rule.ValidateStruct(listQuery{Mode: "append"}))
}

func TestMD5(t *testing.T) {
	require.NoError(t, rule.ValidateVar("0123456789abcdef0123456789abcdef", "required,md5"))
	require.Error(t, rule.ValidateVar("0123456789abcdef", "md5"))
	require.Error(t, rule.ValidateVar("zz23456789abcdef0123456789abcdef", "md5"))
}

func TestErrors(t *testing.T) {
	errs := rule.Errors(rule.ValidateStruct(listQuery{Mode: "append", Limit: 5000}))
	assert.Equal(t, rule.ValidationErrors{
		"listQuery.Mode":  "failed on 'oneof=read write unknown'",
		"listQuery.Limit": "failed on 'max=1000'",
	}, errs)

	assert.Nil(t, rule.Errors(errors.New("boom")))
	assert.Nil(t, rule.Errors(nil))
}

func TestRegisterValidation(t *testing.T) {
	err := rule.RegisterValidation("fs_name", func(fl validator.FieldLevel) bool {
		return fl.Field().String() != "_unknown"
	})
	require.NoError(t, err)

	require.NoError(t, rule.ValidateVar("scratch3", "fs_name"))
	require.Error(t, rule.ValidateVar("_unknown", "fs_name"))
}

func TestRegisterAlias(t *testing.T) {
	rule.RegisterAlias("timestamp", "omitempty,min=0")

	require.NoError(t, rule.ValidateVar(int64(1490000000), "timestamp"))
	require.Error(t, rule.ValidateVar(int64(-5), "timestamp"))
}
