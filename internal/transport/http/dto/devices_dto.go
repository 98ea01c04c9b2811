package dto

type RegisterDeviceRequest struct {
	DeviceToken string `json:"device_token"`
}
