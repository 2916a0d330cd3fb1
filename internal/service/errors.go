package service

import "fmt"

// 业务规则错误码，跨 HTTP 边界保持稳定
const (
	CodeLicensePlateRequired      = "LICENSE_PLATE_REQUIRED"
	CodeModelRequired             = "MODEL_REQUIRED"
	CodeInvalidLicensePlate       = "INVALID_LICENSE_PLATE"
	CodeInvalidStatus             = "INVALID_STATUS"
	CodeDuplicateLicensePlate     = "DUPLICATE_LICENSE_PLATE"
	CodeIllegalStatusTransition   = "ILLEGAL_STATUS_TRANSITION"
	CodeMaintenanceCapExceeded    = "MAINTENANCE_CAP_EXCEEDED"
	CodeNotAllowedStatusForDelete = "NOT_ALLOWED_STATUS_FOR_DELETE"
	CodeVehicleNotFound           = "VEHICLE_NOT_FOUND"
	CodeAdminApprovalRequired     = "ADMIN_APPROVAL_REQUIRED"
)

// Error 业务规则错误，携带稳定错误码与描述。
// 所有可预期的规则冲突均以 *Error 返回，而非 panic。
type Error struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Error 实现 error 接口
func (e *Error) Error() string {
	return e.Code + ": " + e.Message
}

// NewError 创建业务错误
func NewError(code, message string) *Error {
	return &Error{Code: code, Message: message}
}

// Errorf 创建带格式化描述的业务错误
func Errorf(code, format string, args ...interface{}) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...)}
}
