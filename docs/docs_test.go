package docs

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tidwall/gjson"
)

func TestSwaggerDoc(t *testing.T) {
	doc := SwaggerInfo.ReadDoc()
	require.True(t, gjson.Valid(doc))

	kakaoOK := gjson.Get(doc, `paths./auth/kakao/login.post.responses.200`)
	require.True(t, kakaoOK.Exists())
	assert.Equal(t, "#/definitions/service.LoginResult", kakaoOK.Get(`schema.$ref`).String())
	assert.Equal(t, "#/definitions/service.SignupRequiredResult", kakaoOK.Get(`x-alternative-schema.$ref`).String())

	for _, name := range []string{"service.LoginResult", "service.SignupRequiredResult", "service.UserSummary", "errors.ErrorResponse"} {
		assert.True(t, gjson.Get(doc, "definitions."+gjson.Escape(name)).Exists(), name)
	}
}
