package transport

import "zonechat/domain"

// DiscoveryTopic is the fixed global topic carrying zone_descriptor and
// zone_sync_req envelopes for every client.
const DiscoveryTopic = "zonechat.discovery"

// ZoneTopic derives a zone's own topic deterministically from its id. It
// carries message, typing, presence, count_sync, history_req and
// history_res envelopes.
func ZoneTopic(id domain.ZoneID) string {
	return "zonechat.zone." + string(id)
}
