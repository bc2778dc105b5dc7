package main

import (
	"bytes"

	"artnetsync/internal/artnet"
	"artnetsync/internal/clientmqtt"
	"artnetsync/internal/controller"
	"artnetsync/internal/logger"
)

// fixtures applies channel commands coming from MQTT and logs what is shown.
type fixtures struct {
	log   *logger.Log
	in    <-chan clientmqtt.DataCh
	shown map[uint16][]byte
}

func newFixtures(log *logger.Log, in <-chan clientmqtt.DataCh) *fixtures {
	return &fixtures{
		log:   log.Module("fixtures"),
		in:    in,
		shown: map[uint16][]byte{},
	}
}

func (f *fixtures) Render(groups []*controller.Group) {
	for {
		select {
		case d := <-f.in:
			f.apply(groups, d)
		default:
			return
		}
	}
}

func (f *fixtures) apply(groups []*controller.Group, d clientmqtt.DataCh) {
	for _, g := range groups {
		if g.ID != d.Addr {
			continue
		}
		for _, cmd := range d.Data {
			if int(cmd.Channel) >= artnet.MaxChannels {
				f.log.Warnf("group %d: channel %d out of range", d.Addr, cmd.Channel)
				continue
			}
			g.Data[cmd.Channel] = cmd.Value
		}
		return
	}
	f.log.Warnf("DMX. Данные для неизвестной группы %d", d.Addr)
}

func (f *fixtures) Display(groups []*controller.Group) {
	for _, g := range groups {
		last, ok := f.shown[g.ID]
		if ok && bytes.Equal(last, g.Data[:g.Channels]) {
			continue
		}
		f.shown[g.ID] = append(last[:0], g.Data[:g.Channels]...)
		f.log.Debugf("%s now shows %v", g, g.Data[:g.Channels])
	}
}
