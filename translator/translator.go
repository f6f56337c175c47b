// Package translator checks WebGL-flavored shader sources through the
// ANGLE translator, giving portable diagnostics without touching a GPU.
package translator

import (
	"context"
	"fmt"

	gst "github.com/richinsley/goshadertranslator"
)

var translator *gst.ShaderTranslator

func GetTranslator() (*gst.ShaderTranslator, error) {
	if translator == nil {
		t, err := gst.NewShaderTranslator(context.Background())
		if err != nil {
			return nil, fmt.Errorf("failed to initialize shader translator: %w", err)
		}
		translator = t
	}
	return translator, nil
}

// Check translates a wrapped WebGL2 fragment source to GLSL 330 and
// returns the translated code. Translation failures carry ANGLE's
// diagnostics, which are far more consistent across machines than
// native driver logs.
func Check(fragmentSource string) (string, error) {
	t, err := GetTranslator()
	if err != nil {
		return "", err
	}
	out, err := t.TranslateShader(fragmentSource, "fragment", gst.ShaderSpecWebGL2, gst.OutputFormatGLSL330)
	if err != nil {
		return "", fmt.Errorf("fragment shader translation failed: %w", err)
	}
	return out.Code, nil
}
