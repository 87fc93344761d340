package config

import (
	"strings"

	"github.com/spf13/viper"
)

func envPrefix(serviceName string) string {
	return strings.ToUpper(strings.NewReplacer("-", "_", ".", "_").Replace(serviceName))
}

// bindPrefixedEnv sets every PREFIX_* variable on v under each key its
// underscores could map to. RANCHCTL_LIVE_HEARTBEAT_INTERVAL is set as
// live.heartbeat.interval, live.heartbeat_interval, live_heartbeat.interval
// and live_heartbeat_interval; unmarshal keeps whichever matches a field.
func bindPrefixedEnv(v *viper.Viper, prefix string, environ []string) {
	head := prefix + "_"
	for _, kv := range environ {
		key, value, ok := strings.Cut(kv, "=")
		if !ok || !strings.HasPrefix(key, head) || len(key) == len(head) {
			continue
		}
		for _, variant := range keyVariants(strings.ToLower(key[len(head):])) {
			v.Set(variant, value)
		}
	}
}

// keyVariants returns every joining of the underscore-separated parts of key
// with "." or "_". Keys with more than six parts only get the two plain
// forms.
func keyVariants(key string) []string {
	parts := strings.Split(key, "_")
	if len(parts) == 1 {
		return parts
	}
	if len(parts) > 6 {
		return []string{key, strings.Join(parts, ".")}
	}

	gaps := len(parts) - 1
	variants := make([]string, 0, 1<<gaps)
	for mask := 0; mask < 1<<gaps; mask++ {
		var b strings.Builder
		b.WriteString(parts[0])
		for i := 1; i < len(parts); i++ {
			if mask&(1<<(i-1)) != 0 {
				b.WriteByte('.')
			} else {
				b.WriteByte('_')
			}
			b.WriteString(parts[i])
		}
		variants = append(variants, b.String())
	}
	return variants
}
