package main

import (
	"encoding/json"
	"testing"

	"github.com/imkonsowa/restaurants-linebot/config"
	"github.com/imkonsowa/restaurants-linebot/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const walPayload = `{"change":[
	{"kind":"insert","table":"restaurants","columnnames":["id","title"],"columnvalues":[12,"麵屋一燈"]},
	{"kind":"update","table":"restaurants","columnnames":["title","id"],"columnvalues":["鷹流",13]},
	{"kind":"delete","table":"restaurants","oldkeys":{"keynames":["id"],"keyvalues":[14]}},
	{"kind":"insert","table":"chunks","columnnames":["id","restaurant_id"],"columnvalues":[1,12]},
	{"kind":"insert","table":"restaurants","columnnames":["title"],"columnvalues":["no id"]}
]}`

type fakePublisher struct {
	subjects []string
	messages []models.Change
}

func (f *fakePublisher) PublishAsync(subject string, data []byte) error {
	var c models.Change
	if err := json.Unmarshal(data, &c); err != nil {
		return err
	}
	f.subjects = append(f.subjects, subject)
	f.messages = append(f.messages, c)

	return nil
}

func decodeWAL(t *testing.T) []WAL2JSONChange {
	var msg WAL2JSONMessage
	require.NoError(t, json.Unmarshal([]byte(walPayload), &msg))

	return msg.Change
}

func TestChangeMessages(t *testing.T) {
	out := ChangeMessages(decodeWAL(t), map[string]string{"restaurants": "restaurants.changes"})

	assert.Equal(t, map[string][]models.Change{
		"restaurants.changes": {
			{Table: "restaurants", Kind: "insert", ID: 12},
			{Table: "restaurants", Kind: "update", ID: 13},
		},
	}, out)
}

func TestListener_ProcessChanges(t *testing.T) {
	pub := &fakePublisher{}
	l := NewListener(&config.Config{Nats: config.Nats{RestaurantsSubject: "restaurants.changes"}}, pub)

	l.processChanges(decodeWAL(t))

	assert.Equal(t, []string{"restaurants.changes", "restaurants.changes"}, pub.subjects)
	assert.Equal(t, []uint64{12, 13}, []uint64{pub.messages[0].ID, pub.messages[1].ID})
}
