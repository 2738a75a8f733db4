package config

import (
	"fmt"
	"net"
	neturl "net/url"
	"sort"
	"strconv"
	"strings"
)

// DSNValue builds the driver-specific connection string unless an explicit dsn is configured.
func (c DatabaseRuntimeConfig) DSNValue() string {
	if v := strings.TrimSpace(c.DSN); v != "" {
		return v
	}
	switch c.Driver {
	case DriverMySQL:
		return c.mysqlDSN()
	case DriverSQLite:
		return c.sqliteDSN()
	default:
		return c.postgresDSN()
	}
}

func (c DatabaseRuntimeConfig) postgresDSN() string {
	pairs := []string{
		"host=" + quotePGValue(c.Host),
		"port=" + strconv.Itoa(c.Port),
		"user=" + quotePGValue(c.User),
		"dbname=" + quotePGValue(c.Name),
		"sslmode=" + quotePGValue(c.SSLMode),
	}
	if c.Password != "" {
		pairs = append(pairs, "password="+quotePGValue(c.Password))
	}
	params := copyStringMap(c.Params)
	if _, ok := params["TimeZone"]; !ok {
		params["TimeZone"] = "UTC"
	}
	for _, k := range sortedKeys(params) {
		if v := strings.TrimSpace(params[k]); v != "" {
			pairs = append(pairs, k+"="+quotePGValue(v))
		}
	}
	return strings.Join(pairs, " ")
}

func quotePGValue(v string) string {
	if v == "" || strings.ContainsAny(v, " '\\") {
		v = strings.ReplaceAll(v, `\`, `\\`)
		v = strings.ReplaceAll(v, `'`, `\'`)
		return "'" + v + "'"
	}
	return v
}

func (c DatabaseRuntimeConfig) mysqlDSN() string {
	params := neturl.Values{}
	for key, value := range c.Params {
		k := strings.TrimSpace(key)
		v := strings.TrimSpace(value)
		if k != "" && v != "" {
			params.Set(k, v)
		}
	}
	if params.Get("charset") == "" {
		params.Set("charset", "utf8mb4")
	}
	if params.Get("parseTime") == "" {
		params.Set("parseTime", "True")
	}
	if params.Get("loc") == "" {
		params.Set("loc", "UTC")
	}

	auth := c.User
	if c.Password != "" {
		auth += ":" + c.Password
	}
	return fmt.Sprintf("%s@tcp(%s)/%s?%s", auth, net.JoinHostPort(c.Host, strconv.Itoa(c.Port)), c.Name, params.Encode())
}

func (c DatabaseRuntimeConfig) sqliteDSN() string {
	path := c.Path
	if path == "" {
		path = defaultSQLitePath
	}
	if strings.Contains(path, "?") || path == ":memory:" {
		return path
	}
	return path + "?_pragma=busy_timeout(5000)&_pragma=foreign_keys(1)"
}

// URLValue returns the go-redis connection URL.
func (c RedisRuntimeConfig) URLValue() string {
	if u := normalizeRedisRawURL(c.URL); u != "" {
		return u
	}

	scheme := "redis"
	if c.TLS {
		scheme = "rediss"
	}
	u := neturl.URL{
		Scheme: scheme,
		Host:   net.JoinHostPort(c.Host, strconv.Itoa(c.Port)),
		Path:   "/" + strconv.Itoa(c.DB),
	}
	if c.Password != "" {
		u.User = neturl.UserPassword("", c.Password)
	}
	return u.String()
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
