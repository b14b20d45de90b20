package evaluator

import (
	"strings"

	"metahub-service/service/models"

	"github.com/spf13/cast"
)

// builtinDerived 内置派生计算
var builtinDerived = map[string]DerivedFunc{
	"certificate_verified": certificateVerified,
	"has_any_owner":        hasAnyOwner,
}

// certificateVerified 认证状态为 VERIFIED 时为真，未记录认证状态时无法计算
func certificateVerified(asset *models.AssetRecord) (interface{}, error) {
	for _, key := range []string{"CERTIFICATE_STATUS", "CERTIFICATESTATUS"} {
		v, ok := asset.Attribute(key)
		if !ok || v == nil {
			continue
		}
		status, err := cast.ToStringE(v)
		if err != nil {
			return nil, err
		}
		return strings.EqualFold(strings.TrimSpace(status), "VERIFIED"), nil
	}
	return nil, nil
}

// hasAnyOwner 用户或用户组任一非空
func hasAnyOwner(asset *models.AssetRecord) (interface{}, error) {
	_, usersKnown := asset.Attribute("OWNER_USERS")
	_, groupsKnown := asset.Attribute("OWNER_GROUPS")
	if !usersKnown && !groupsKnown {
		return nil, nil
	}
	return len(asset.Owners()) > 0, nil
}
