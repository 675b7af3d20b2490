// Package audio plays generated speech. OtoPlayer sends 16-bit PCM to the
// sound device through oto; SilentPlayer only keeps time, which is enough
// to drive word highlighting without a device.
//
// Both report playback transitions on their Events channel.
package audio
