package cache

import "fmt"

const (
	KeyKitchenActiveOrders    = "kitchen:orders:active"
	KeyKitchenCompletedOrders = "kitchen:orders:completed"
)

func OrderKey(orderID string) string {
	return "order:" + orderID
}

func UserOrdersKey(clientID string) string {
	return "user-orders:" + clientID
}

func SessionOrdersKey(sessionID string) string {
	return "session-orders:" + sessionID
}

func RatingsKey(clientID string) string {
	return "ratings:" + clientID
}

func UserReservationsKey(clientID string) string {
	return "user-reservations:" + clientID
}

func AvailabilityKey(date string, guestCount int) string {
	return fmt.Sprintf("availability:%s:%d", date, guestCount)
}

// AvailabilityBucketsKey names the set of guest counts cached for date.
func AvailabilityBucketsKey(date string) string {
	return "availability-buckets:" + date
}

func TableKey(tableCode string) string {
	return "table:" + tableCode
}

func BillKey(sessionID string) string {
	return "bill:" + sessionID
}
