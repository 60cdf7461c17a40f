package ble

import (
	"context"
	"fmt"

	log "github.com/sirupsen/logrus"
	"tinygo.org/x/bluetooth"
)

var adapter = bluetooth.DefaultAdapter

// Peripheral advertises the Nordic UART service and serves one Link.
type Peripheral struct {
	link *Link
	tx   bluetooth.Characteristic
	rx   bluetooth.Characteristic
}

// NewPeripheral creates a Peripheral serving link.
func NewPeripheral(link *Link) *Peripheral {
	return &Peripheral{link: link}
}

// Run enables the adapter, registers the service and advertises until ctx is done.
func (p *Peripheral) Run(ctx context.Context) error {
	if err := adapter.Enable(); err != nil {
		return fmt.Errorf("failed to enable adapter: %w", err)
	}

	adapter.SetConnectHandler(func(device bluetooth.Device, connected bool) {
		p.link.SetConnected(connected)
	})

	err := adapter.AddService(&bluetooth.Service{
		UUID: bluetooth.ServiceUUIDNordicUART,
		Characteristics: []bluetooth.CharacteristicConfig{
			{
				Handle: &p.rx,
				UUID:   bluetooth.CharacteristicUUIDUARTRX,
				Flags:  bluetooth.CharacteristicWritePermission | bluetooth.CharacteristicWriteWithoutResponsePermission,
				WriteEvent: func(client bluetooth.Connection, offset int, value []byte) {
					p.link.Receive(value)
				},
			},
			{
				Handle: &p.tx,
				UUID:   bluetooth.CharacteristicUUIDUARTTX,
				Flags:  bluetooth.CharacteristicNotifyPermission | bluetooth.CharacteristicReadPermission,
			},
		},
	})
	if err != nil {
		return fmt.Errorf("failed to add UART service: %w", err)
	}
	p.link.setTX(&p.tx)

	adv := adapter.DefaultAdvertisement()
	err = adv.Configure(bluetooth.AdvertisementOptions{
		LocalName:    p.link.name,
		ServiceUUIDs: []bluetooth.UUID{bluetooth.ServiceUUIDNordicUART},
	})
	if err != nil {
		return fmt.Errorf("failed to configure advertisement: %w", err)
	}
	if err := adv.Start(); err != nil {
		return fmt.Errorf("failed to start advertising: %w", err)
	}
	log.Printf("[BLE] Advertising as '%s'.", p.link.name)

	<-ctx.Done()
	if err := adv.Stop(); err != nil {
		log.Printf("[BLE] Failed to stop advertising: %v", err)
	}
	p.link.SetConnected(false)
	log.Println("[BLE] Peripheral stopped.")
	return nil
}
