// Package app runs one scrape: it loads the country list, picks the countries
// to refresh, downloads their listings and museum pages through the cache and
// writes one GPX document per country.
package app
