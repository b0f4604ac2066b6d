package utils

import (
	"context"

	"equipment-system/pkg/contextkeys"
	apperrors "equipment-system/pkg/errors"
)

func GetUserCodeFromCtx(ctx context.Context) (string, error) {
	userCode, ok := ctx.Value(contextkeys.UserCodeKey).(string)
	if !ok || userCode == "" {
		return "", apperrors.ErrUserCodeNotFoundInContext
	}
	return userCode, nil
}
