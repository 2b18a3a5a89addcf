package bus

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPublish_DeliversInSubscriptionOrder(t *testing.T) {
	b := New()
	var got []string
	Subscribe(b, LocationSelected, func(d LocationDetail) { got = append(got, "a:"+d.Name) })
	Subscribe(b, LocationSelected, func(d LocationDetail) { got = append(got, "b:"+d.Name) })
	Subscribe(b, RefreshEvents, func(d LocationDetail) { got = append(got, "refresh") })

	Publish(b, LocationSelected, LocationDetail{Name: "Amsterdam"})

	assert.Equal(t, []string{"a:Amsterdam", "b:Amsterdam"}, got)
}

func TestSubscribe_Unsubscribe(t *testing.T) {
	b := New()
	calls := 0
	unsubscribe := Subscribe(b, HighlightEventCard, func(HighlightDetail) { calls++ })

	Publish(b, HighlightEventCard, HighlightDetail{EventID: "e1"})
	unsubscribe()
	Publish(b, HighlightEventCard, HighlightDetail{EventID: "e1"})

	assert.Equal(t, 1, calls)
}

func TestPublish_SubscriberAddedDuringDelivery(t *testing.T) {
	b := New()
	late := 0
	Subscribe(b, EventsDataLoaded, func(EventsDetail) {
		Subscribe(b, EventsDataLoaded, func(EventsDetail) { late++ })
	})

	Publish(b, EventsDataLoaded, EventsDetail{})
	assert.Equal(t, 0, late)

	Publish(b, EventsDataLoaded, EventsDetail{})
	assert.Equal(t, 1, late)
}

func TestLocationDetail_Location(t *testing.T) {
	d := LocationDetail{Lat: 52.37, Lon: 4.9, Name: "Amsterdam", Radius: 40}
	loc := d.Location()
	assert.Equal(t, 52.37, loc.Latitude)
	assert.Equal(t, 4.9, loc.Longitude)
	assert.Equal(t, "Amsterdam", loc.DisplayName)
	assert.Equal(t, "locationSelected", LocationSelected.Name())
}
